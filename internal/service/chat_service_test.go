package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"xiaonuan/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatService(store *fakeMessageStore, gw *fakeGateway) *ChatService {
	svc := NewChatService(store, NewExtractService(gw, testLogger()), gw, testLogger())
	svc.now = func() time.Time {
		return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestHandleMessageWithIntent(t *testing.T) {
	// First scripted response feeds extraction, second the reply.
	gw := &fakeGateway{responses: []gatewayResponse{
		{content: `{"has_intent": true, "type": "expense", "amount": 35, "description": "午饭", "category": "餐饮美食"}`},
		{content: "好的，已经帮你记下来啦，记得确认哦。"},
	}}
	store := &fakeMessageStore{}
	svc := newChatService(store, gw)

	resp, err := svc.HandleMessage(context.Background(), 1, &dto.MessageCreate{Content: "今天午饭花了35元"})
	require.NoError(t, err)

	assert.True(t, resp.NeedsConfirmation)
	require.NotNil(t, resp.ExtractedInfo)
	assert.Equal(t, "expense", resp.ExtractedInfo.Type)

	// The draft points back at the persisted user message.
	id, ok := resp.ExtractedInfo.Source.MessageID()
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	// Both the user and the assistant message are persisted.
	require.Len(t, store.messages, 2)
	assert.True(t, store.messages[0].IsUser)
	assert.Equal(t, "今天午饭花了35元", store.messages[0].Content)
	assert.False(t, store.messages[1].IsUser)
	assert.Equal(t, resp.Message.Content, store.messages[1].Content)
}

func TestHandleMessageNoIntent(t *testing.T) {
	gw := &fakeGateway{responses: []gatewayResponse{
		{content: `{"has_intent": false}`},
		{content: "今天确实不错呀！"},
	}}
	store := &fakeMessageStore{}
	svc := newChatService(store, gw)

	resp, err := svc.HandleMessage(context.Background(), 1, &dto.MessageCreate{Content: "今天天气真好"})
	require.NoError(t, err)
	assert.False(t, resp.NeedsConfirmation)
	assert.Nil(t, resp.ExtractedInfo)
	assert.Len(t, store.messages, 2)
}

func TestHandleMessageReplyFallback(t *testing.T) {
	gw := &fakeGateway{responses: []gatewayResponse{
		{content: `{"has_intent": false}`},
		{err: errors.New("upstream timeout")},
	}}
	store := &fakeMessageStore{}
	svc := newChatService(store, gw)

	resp, err := svc.HandleMessage(context.Background(), 1, &dto.MessageCreate{Content: "你好"})
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, resp.Message.Content)
}

func TestHandleMessageUsesPersonalityPrompt(t *testing.T) {
	personality := int64(2)
	gw := &fakeGateway{responses: []gatewayResponse{
		{content: `{"has_intent": false}`},
		{content: "好的呢～"},
	}}
	svc := newChatService(&fakeMessageStore{}, gw)

	_, err := svc.HandleMessage(context.Background(), 1, &dto.MessageCreate{
		Content:       "你好",
		PersonalityID: &personality,
	})
	require.NoError(t, err)

	require.Len(t, gw.calls, 2)
	assert.Contains(t, gw.calls[1].system, "小暖")
	assert.InDelta(t, replyTemperature, gw.calls[1].temperature, 1e-9)
}

func TestHandleMessageStoreFailure(t *testing.T) {
	store := &fakeMessageStore{err: errors.New("connection refused")}
	svc := newChatService(store, &fakeGateway{})

	_, err := svc.HandleMessage(context.Background(), 1, &dto.MessageCreate{Content: "今天午饭花了35元"})
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	gw := &fakeGateway{responses: []gatewayResponse{
		{content: `{"has_intent": false}`},
		{content: "你好呀！"},
	}}
	store := &fakeMessageStore{}
	svc := newChatService(store, gw)

	_, err := svc.HandleMessage(context.Background(), 1, &dto.MessageCreate{Content: "你好"})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), 1, 50, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first.
	assert.False(t, history[0].IsUser)
	assert.True(t, history[1].IsUser)

	// Another user sees nothing.
	other, err := svc.History(context.Background(), 2, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAssistantByID(t *testing.T) {
	def := AssistantByID(nil)
	assert.True(t, def.IsDefault)

	unknown := int64(42)
	assert.Equal(t, def.ID, AssistantByID(&unknown).ID)

	warm := int64(2)
	assert.Equal(t, "小暖", AssistantByID(&warm).Name)

	assert.Len(t, AssistantMetadata(), 5)
}

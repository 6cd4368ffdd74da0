package models

// CategoryUncategorized is the fallback label used whenever no category can
// be determined.
const CategoryUncategorized = "未分类"

// Categories is the closed taxonomy the extractors are instructed to choose
// from. Enforcement is prompt-side only; the confirmation gate stores what
// it is given and falls back to CategoryUncategorized when empty.
var Categories = []string{
	"餐饮美食",
	"交通出行",
	"服饰美容",
	"日用百货",
	"住房物业",
	"医疗健康",
	"文教娱乐",
	"人情往来",
	"工资薪酬",
	"投资理财",
	"奖金",
	"退款",
	"兼职收入",
	"租金收入",
	"礼金收入",
	"中奖收入",
	"意外所得",
	"其他收入",
	"其他支出",
	CategoryUncategorized,
}

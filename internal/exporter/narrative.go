package exporter

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"anyumarket/internal/files"
	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// NarrativeName returns the file name of the weekly narrative.
func NarrativeName(weekStart, weekEnd string) string {
	return fmt.Sprintf("每周周报_%s至%s.txt", weekStart, weekEnd)
}

const rule = "========================================"

var commentary = map[domain.ProductID]string{
	domain.ProductPig:     "本周生猪价格呈现震荡调整态势。",
	domain.ProductPiglet:  "仔猪价格受补栏需求影响。",
	domain.ProductEgg:     "鸡蛋价格受供需关系影响。",
	domain.ProductHen:     "淘汰鸡价格受养殖结构调整影响。",
	domain.ProductCorn:    "玉米价格受市场供应和需求影响。",
	domain.ProductSoybean: "豆粕价格受国际市场和国内供需影响。",
}

var outlook = []string{
	"生猪市场：预计将根据市场供需关系进行调整。建议关注出栏进度及政策动向。",
	"仔猪市场：预计受补栏需求影响，价格将保持相对稳定。",
	"鸡蛋市场：预计短期价格或继续震荡，关注节日需求变化。",
	"淘汰鸡市场：预计受养殖结构调整影响，价格将有所波动。",
	"玉米市场：预计将继续受市场供需影响，价格或维持震荡。",
	"豆粕市场：预计受国际市场影响，价格或维持低位运行。",
}

// NarrativeWriter renders the weekly text report
type NarrativeWriter struct {
	title        string
	organisation string
	now          func() time.Time
	logger       *slog.Logger
}

// NewNarrativeWriter creates a narrative writer. The clock stamps the
// publication time; nil uses time.Now.
func NewNarrativeWriter(title, organisation string, now func() time.Time, logger *slog.Logger) *NarrativeWriter {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NarrativeWriter{
		title:        title,
		organisation: organisation,
		now:          now,
		logger:       logger.With(slog.String("component", "narrative")),
	}
}

// Trend names the direction of a change.
func Trend(c domain.Change, precision int) string {
	switch r := market.Round(c.Diff, precision); {
	case r > 0:
		return "上涨"
	case r < 0:
		return "下跌"
	default:
		return "持平"
	}
}

// OverviewLines returns one numbered sentence per product with a weekly
// average. Products without an average are skipped.
func OverviewLines(agg domain.WeeklyAggregate) []string {
	var lines []string
	for _, p := range market.Products() {
		week, ok := agg.Products[p.ID]
		if !ok || week.Average == nil {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s市场：全国均价 %s%s", len(lines)+1, p.Name, FormatPrice(*week.Average, p.Precision), p.Unit)
		if week.Change != nil {
			fmt.Fprintf(&b, " (%s，环比%s)。", FormatSigned(week.Change.Diff, p.Precision), Trend(*week.Change, p.Precision))
		} else {
			b.WriteString(" (暂无上周对比数据)。")
		}
		b.WriteString(commentary[p.ID])
		lines = append(lines, b.String())
	}
	return lines
}

// UnknownPeriod stands in for a missing or malformed week bound.
const UnknownPeriod = "未知"

// Render produces the narrative document for an aggregate. A missing or
// malformed week bound is shown as UnknownPeriod.
func (w *NarrativeWriter) Render(agg domain.WeeklyAggregate) string {
	start := w.periodBound(agg.WeekStart, "2006年01月02日")
	end := w.periodBound(agg.WeekEnd, "01月02日")

	overview := OverviewLines(agg)
	if len(overview) == 0 {
		overview = []string{"本周暂无行情数据。"}
	}

	var b strings.Builder
	section := func(title string) {
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n\n", rule, title, rule)
	}

	fmt.Fprintf(&b, "%s\n        %s\n%s\n\n", rule, w.title, rule)
	fmt.Fprintf(&b, "报告周期：%s至%s\n", start, end)
	fmt.Fprintf(&b, "发布时间：%s\n", w.now().Format("2006年01月02日 15:04"))
	fmt.Fprintf(&b, "编制单位：%s\n", w.organisation)

	section("一、本周行情总览")
	b.WriteString(strings.Join(overview, "\n"))
	b.WriteString("\n")

	section("二、下周市场预测")
	for i, line := range outlook {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}

	section("三、数据来源及免责声明")
	fmt.Fprintf(&b, "本报告数据来源于%s市场监测系统及行业公开数据，仅供参考，不构成投资建议。市场有风险，投资需谨慎。\n\n", w.organisation)
	fmt.Fprintf(&b, "联系方式：%s\n", w.organisation)
	b.WriteString("更新时间：每日上午9:00\n\n")
	b.WriteString(rule + "\n")

	return b.String()
}

func (w *NarrativeWriter) periodBound(date, layout string) string {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		w.logger.Warn("week bound unavailable", slog.String("value", date))
		return UnknownPeriod
	}
	return t.Format(layout)
}

// Write renders the aggregate and stores it atomically at path.
func (w *NarrativeWriter) Write(path string, agg domain.WeeklyAggregate) error {
	text := w.Render(agg)
	if err := files.WriteFileAtomic(path, []byte(text), 0644); err != nil {
		return err
	}
	w.logger.Info("narrative written",
		slog.String("path", path),
		slog.Int("size_bytes", len(text)))
	return nil
}

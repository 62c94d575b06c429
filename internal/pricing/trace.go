package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// shown returns the display text of an operand.
func shown(text string, d decimal.Decimal) string {
	if text != "" {
		return text
	}
	return d.String()
}

func formatSpec(in Inputs) string {
	return fmt.Sprintf("%s * %s    %sC",
		shown(in.Text.Opening, in.Opening),
		shown(in.Text.Width, in.Width),
		shown(in.Text.Thickness, in.Thickness))
}

// renderDetail writes the formula trace shown next to the result fields.
// Operands are printed as entered, results with Places decimals.
func renderDetail(in Inputs, s Settings, b Breakdown, t Totals) string {
	m, p, pr := b.Material, b.Process, b.Print
	var (
		opening       = shown(in.Text.Opening, in.Opening)
		width         = shown(in.Text.Width, in.Width)
		thickness     = shown(in.Text.Thickness, in.Thickness)
		paramValue    = shown(in.Text.ParamValue, in.ParamValue)
		materialPrice = shown(in.Text.MaterialPrice, in.MaterialPrice)
		quantity      = shown(in.Text.Quantity, in.Quantity)
		processParam  = shown(in.Text.ProcessParam, in.ProcessParam)
		printParam    = shown(in.Text.PrintParam, in.PrintParam)
	)

	var sb strings.Builder
	sb.WriteString("=== 计算算式 ===\n\n")

	sb.WriteString("原料计算：\n")
	fmt.Fprintf(&sb, "- 原料单价 = (%s/100) × (%s/100) × (%s×2/100) × %s × %s = %s 元/个\n",
		opening, width, thickness, paramValue, materialPrice, Fixed(m.UnitPrice))
	fmt.Fprintf(&sb, "- 原料重量 = (%s/100) × (%s/100) × (%s×2/100) × %s × %s = %s 公斤\n\n",
		opening, width, thickness, paramValue, quantity, Fixed(m.Weight))

	sb.WriteString("加工计算：\n")
	fmt.Fprintf(&sb, "- 加工单价 = (%s/100) × %s = %s 元/个\n",
		opening, processParam, Fixed(p.UnitPrice))
	fmt.Fprintf(&sb, "- 加工费 = %s × %s = %s 元（最低%s元）\n\n",
		Fixed(p.UnitPrice), quantity, Fixed(p.Fee), s.minProcessFee())

	sb.WriteString("印刷计算：\n")
	fmt.Fprintf(&sb, "- 印刷单价 = %s = %s 元/个\n",
		printParam, Fixed(pr.UnitPrice))
	fmt.Fprintf(&sb, "- 印刷费 = %s × %s = %s 元（最低%s元）\n\n",
		Fixed(pr.UnitPrice), quantity, Fixed(pr.Fee), Fixed(pr.PlatePrice))

	fmt.Fprintf(&sb, "单袋单价 = %s + %s + %s = %s 元/个\n",
		Fixed(m.UnitPrice), Fixed(p.UnitPrice), Fixed(pr.UnitPrice), Fixed(t.BagUnitPrice))

	return sb.String()
}

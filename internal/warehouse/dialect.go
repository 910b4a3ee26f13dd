package warehouse

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect：两种数仓在日期函数与占位符上的差异
type Dialect struct {
	Name string
}

var (
	Snowflake = Dialect{Name: "snowflake"}
	Postgres  = Dialect{Name: "postgres"}
)

// DialectFor：按驱动名取方言，未知驱动按 Snowflake 处理
func DialectFor(driver string) Dialect {
	if strings.EqualFold(driver, "postgres") {
		return Postgres
	}
	return Snowflake
}

// Rebind：Postgres 下把 ? 占位符改写为 $1..$n（跳过单引号字符串字面量）
func (d Dialect) Rebind(q string) string {
	if d.Name != "postgres" || !strings.Contains(q, "?") {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(q); i++ {
		ch := q[i]
		if ch == '\'' {
			quoted = !quoted
		}
		if ch == '?' && !quoted {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// currentMonth：col 落在当月
func (d Dialect) currentMonth(col string) string {
	if d.Name == "postgres" {
		return fmt.Sprintf("date_trunc('month', %s) = date_trunc('month', CURRENT_DATE)", col)
	}
	return fmt.Sprintf("MONTH(%[1]s) = MONTH(CURRENT_DATE()) AND YEAR(%[1]s) = YEAR(CURRENT_DATE())", col)
}

// monthsAgo：col 落在 n 个自然月之前
func (d Dialect) monthsAgo(col string, n int) string {
	if d.Name == "postgres" {
		return fmt.Sprintf("date_trunc('month', %s) = date_trunc('month', CURRENT_DATE) - INTERVAL '%d month'", col, n)
	}
	return fmt.Sprintf("DATEDIFF(month, %s, CURRENT_DATE()) = %d", col, n)
}

// withinDays：col 距今不超过 n 天
func (d Dialect) withinDays(col string, n int) string {
	if d.Name == "postgres" {
		return fmt.Sprintf("%s >= CURRENT_DATE - INTERVAL '%d day'", col, n)
	}
	return fmt.Sprintf("DATEDIFF(day, %s, CURRENT_DATE()) <= %d", col, n)
}

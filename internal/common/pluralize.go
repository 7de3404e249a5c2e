// Package common - pluralize.go содержит форматирование сумм
// для ответов бота: минуты экранного времени и очки репутации.
package common

import (
	"fmt"
	"strings"
)

// FormatMinutes форматирует количество минут в читабельную строку.
// Пример: FormatMinutes(150) → "150 минут"
func FormatMinutes(minutes int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(minutes), PluralizeMinutes(minutes))
}

// FormatPointsDelta создаёт строку вида "+2 очка" или "-15 очков".
// Знак «+» добавляется автоматически.
//
//	FormatPointsDelta(2)   → "+2 очка"
//	FormatPointsDelta(-10) → "-10 очков"
//	FormatPointsDelta(0)   → "+0 очков"
func FormatPointsDelta(amount int) string {
	if amount >= 0 {
		return fmt.Sprintf("+%d %s", amount, PluralizePoints(amount))
	}
	return fmt.Sprintf("%d %s", amount, PluralizePoints(amount))
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}

var markdownV2Replacer = strings.NewReplacer(
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
	`\`, `\\`,
)

// EscapeMarkdownV2 экранирует служебные символы Telegram MarkdownV2.
func EscapeMarkdownV2(s string) string {
	return markdownV2Replacer.Replace(s)
}

package i18n

import (
	"fmt"
	"strings"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "max" or "value").
type Translator interface {
	Message(code string, data map[string]any) string
}

// dictTranslator is the built-in dictionary-based Translator. Templates use
// {name} placeholders filled from data.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":       "invalid type",
		"required":           "this field cannot be blank",
		"null":               "this field cannot be null",
		"too_small":          "ensure this value is greater than or equal to {min}",
		"too_big":            "ensure this value is less than or equal to {max}",
		"too_long":           "ensure this value has at most {max} characters (it has {got})",
		"invalid_choice":     "value {value} is not a valid choice",
		"invalid_format":     "enter a valid {format}",
		"max_digits":         "ensure that there are no more than {max} digits in total",
		"max_decimal_places": "ensure that there are no more than {max} decimal places",
		"max_whole_digits":   "ensure that there are no more than {max} digits before the decimal point",
		"overflow":           "value is out of range for {kind}",
	},
	"ja": {
		"invalid_type":       "型が不正です",
		"required":           "このフィールドは空にできません",
		"null":               "このフィールドは null にできません",
		"too_small":          "{min} 以上の値を指定してください",
		"too_big":            "{max} 以下の値を指定してください",
		"too_long":           "{max} 文字以下にしてください（現在 {got} 文字）",
		"invalid_choice":     "{value} は有効な選択肢ではありません",
		"invalid_format":     "有効な {format} を入力してください",
		"max_digits":         "合計 {max} 桁以下にしてください",
		"max_decimal_places": "小数点以下 {max} 桁以下にしてください",
		"max_whole_digits":   "整数部を {max} 桁以下にしてください",
		"overflow":           "{kind} の範囲外の値です",
	},
}

func (t dictTranslator) Message(code string, data map[string]any) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	return render(tmpl, data)
}

func render(tmpl string, data map[string]any) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]any) string { return currentTranslator.Message(code, data) }

package locale

// Pick returns the text matching the request language, defaulting to English.
func Pick(language, english, chinese string) string {
	if NormalizeLanguage(language) == LanguageChinese && chinese != "" {
		return chinese
	}
	if english != "" {
		return english
	}
	return chinese
}

package bank

import "strings"

// NameMatches reports whether the registered account holder name covers the
// user's full name. Every word of the user's name must appear in the holder
// name, ignoring case and word order, so "ADA OBI CHUKWU" matches "Obi Ada".
func NameMatches(fullName, holderName string) bool {
	userTokens := strings.Fields(strings.ToLower(fullName))
	if len(userTokens) == 0 {
		return false
	}
	holderTokens := strings.Fields(strings.ToLower(holderName))
	holder := make(map[string]bool, len(holderTokens))
	for _, token := range holderTokens {
		holder[token] = true
	}
	for _, token := range userTokens {
		if !holder[token] {
			return false
		}
	}
	return true
}

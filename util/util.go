package util

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsNumberOrDot(b byte) bool {
	return IsNumber(b) || b == '.'
}

func IsUnderScore(b byte) bool {
	return b == '_'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func IsLetterOrUnderscore(b byte) bool {
	return IsLetter(b) || IsUnderScore(b)
}

func IsLetterOrUnderscoreOrNumber(b byte) bool {
	return IsLetter(b) || IsUnderScore(b) || IsNumber(b)
}

// SplitNumberPrefix splits "1.5ms" into "1.5" and "ms".
func SplitNumberPrefix(s string) (number string, suffix string) {
	i := 0
	for i < len(s) && IsNumberOrDot(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// IsAllNumber reports whether s is a non-empty run of digits.
func IsAllNumber(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsNumber(s[i]) {
			return false
		}
	}
	return true
}

package utils

// ContainString reports whether str occurs in arr
func ContainString(arr []string, str string) bool {
	for _, s := range arr {
		if s == str {
			return true
		}
	}
	return false
}

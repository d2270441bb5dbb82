package response

// IsRedirectStatus reports whether code asks the client to redirect.
func IsRedirectStatus(code int) bool {
	switch code {
	case 301, 302, 303, 307, 308:
		return true
	default:
		return false
	}
}

// IsOKStatus reports whether code is in the range 200 to 299.
func IsOKStatus(code int) bool {
	return code >= 200 && code <= 299
}

// IsNullBodyStatus reports whether a response with status code never carries a body.
func IsNullBodyStatus(code int) bool {
	switch code {
	case 101, 103, 204, 205, 304:
		return true
	default:
		return false
	}
}

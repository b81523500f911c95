package github

// AuthHeaders returns the candidate Authorization header values for a token,
// in negotiation order. Classic PATs want the "token" scheme, fine-grained
// PATs and OAuth tokens want "Bearer", and the API offers no cheap way to
// tell which one a given token needs without attempting a call.
func AuthHeaders(token string) []string {
	return []string{
		"token " + token,
		"Bearer " + token,
	}
}

// TryEach runs op with each header value in order, returning on the first
// success; if every header fails, the last failure propagates. Callers wrap
// the whole reachability+branch+upload sequence in one op so a scheme
// mismatch is caught before partial side effects.
func TryEach(headers []string, op func(header string) error) error {
	var last error
	for _, header := range headers {
		if err := op(header); err != nil {
			last = err
			continue
		}
		return nil
	}
	return last
}

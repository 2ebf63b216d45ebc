package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// queryParameterPattern matches "key=value" pairs introduced by one or more '?' or '&'.
//
//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
var queryParameterPattern = regexp.MustCompile(`(?i)[?&]+(?P<key>[^=&]+)=(?P<value>[^&]*)`)

// ExtractOrigin returns the scheme and host prefix of a URL.
// When the URL has no "//" the first '/'-delimited segment is returned as is.
// No validation is performed, malformed input yields a best-effort string.
func ExtractOrigin(rawURL string) string {
	segments := strings.Split(rawURL, "/")

	if !strings.Contains(rawURL, "//") {
		return segments[0]
	}

	// "scheme:" + "" + "host" when split on '/'.
	return segments[0] + "//" + segments[2]
}

// ParseQueryParameters extracts every key=value pair from a query string such as "?a=1&b=2".
// Values are returned raw, without URL decoding. When a key repeats, the last occurrence wins.
func ParseQueryParameters(search string) map[string]string {
	var (
		matches    = queryParameterPattern.FindAllStringSubmatch(search, -1)
		keyIndex   = queryParameterPattern.SubexpIndex("key")
		valueIndex = queryParameterPattern.SubexpIndex("value")
		params     = make(map[string]string, len(matches))
	)

	for _, match := range matches {
		params[match[keyIndex]] = match[valueIndex]
	}

	return params
}

// QueryParameter returns the raw value of a single query parameter.
// The boolean is false when the parameter is absent.
func QueryParameter(search, key string) (string, bool) {
	value, ok := ParseQueryParameters(search)[key]

	return value, ok
}

// SearchFromLocation returns the query component of a location including the leading '?',
// or an empty string when the location has no query.
func SearchFromLocation(location string) (string, error) {
	parsed, err := url.Parse(location)
	if err != nil {
		return "", err
	}

	if parsed.RawQuery == "" {
		return "", nil
	}

	return "?" + parsed.RawQuery, nil
}

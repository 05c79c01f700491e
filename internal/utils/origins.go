package utils

import "strings"

// OriginMatcher строит проверку Origin по списку из конфига.
// nil означает "разрешено всё" (в списке есть "*" или он пуст).
func OriginMatcher(origins []string) func(origin string) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return nil
		}
		if o != "" {
			allowed[strings.ToLower(o)] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return func(origin string) bool {
		_, ok := allowed[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}

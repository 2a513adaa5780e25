package asyncapi

import "strings"

// Generated spec files follow the asyncapi_{topic}_{stamp}.yaml convention,
// but older files may be plain {topic}.yaml or asyncapi_{topic}.yaml.

// TopicFromFilename infers a display topic name from a stored spec filename
// by stripping the known prefix/suffix convention. The listing endpoint does
// not carry the topic, so this is a heuristic for display only.
func TopicFromFilename(filename string) string {
	name := filename
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		if strings.HasSuffix(name, ext) {
			name = strings.TrimSuffix(name, ext)
			break
		}
	}
	name = strings.TrimPrefix(name, "asyncapi_")

	// Trim a trailing _{digits} generation stamp when present.
	if i := strings.LastIndex(name, "_"); i > 0 {
		if isDigits(name[i+1:]) {
			name = name[:i]
		}
	}

	if name == "" {
		return filename
	}
	return name
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package schema

// ValidateDocumentID ensures a document id matches [a-z0-9._-] with no normalization
// and does not start with a dot.
func ValidateDocumentID(id DocumentID) error {
	raw := string(id)
	if raw == "" || raw[0] == '.' {
		return ErrInvalidDocument
	}
	if len(raw) > 128 {
		return ErrInvalidDocument
	}
	for _, r := range raw {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		return ErrInvalidDocument
	}
	return nil
}

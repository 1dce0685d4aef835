// Package privacy removes patient-identifying details from report text
// before it leaves the process, and derives the stable opaque patient token
// that keys the report history. The token is an HMAC of name and date of
// birth, so repeated uploads by the same patient land in the same history
// without ever storing either value.
package privacy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const tokenPrefix = "PT_"

var (
	namePattern = regexp.MustCompile(`(?i)(?:Patient Name|Name)\s*[:\-]?\s*([A-Za-z][A-Za-z'\-]+\s+[A-Za-z][A-Za-z'\-]+)`)
	dobPattern  = regexp.MustCompile(`(?i)(?:DOB|Date of Birth)\s*[:\-]?\s*([A-Za-z]{3,9}\s+\d{1,2},\s+\d{4}|\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
)

// ExtractName finds the patient name in report text, or "".
func ExtractName(text string) string {
	if m := namePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ExtractDOB finds the patient date of birth in report text, or "".
func ExtractDOB(text string) string {
	if m := dobPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// StableToken derives the opaque patient token from name and DOB. The same
// inputs always produce the same token for a given salt. When both are
// empty there is nothing to key on, and a random token is produced instead.
func StableToken(salt, name, dob string) string {
	base := name + "|" + dob
	if strings.Trim(base, "|") == "" {
		base = uuid.New().String()
	}
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(base))
	digest := hex.EncodeToString(mac.Sum(nil))
	return tokenPrefix + digest[:24]
}

// Scrub replaces the patient's name with their token and redacts the DOB.
// Returns the scrubbed text and the stable token.
func Scrub(salt, text string) (string, string) {
	name := ExtractName(text)
	dob := ExtractDOB(text)
	token := StableToken(salt, name, dob)
	scrubbed := text
	if name != "" {
		scrubbed = strings.ReplaceAll(scrubbed, name, token)
	}
	if dob != "" {
		scrubbed = strings.ReplaceAll(scrubbed, dob, "DOB_REDACTED")
	}
	return scrubbed, token
}

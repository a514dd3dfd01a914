package dialog

import (
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/datetime"
	"strconv"
	"strings"
)

// Piece validates one numeric reply. The value must be strictly between Min
// and Max; anything else is answered with OutOfRange or NotNumber and the
// same step is asked again.
type Piece struct {
	Min          int
	Max          int
	OutOfRange   string
	NotNumber    string
	AllowDefault bool // accept datetime.DefaultSentinel
}

// Check validates text. A non-empty retry is the corrective prompt to send;
// isDefault is set when the default sentinel was accepted.
func (p Piece) Check(text string) (value int, isDefault bool, retry string) {
	text = strings.TrimSpace(text)
	if p.AllowDefault && text == datetime.DefaultSentinel {
		return 0, true, ""
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		return 0, false, p.NotNumber
	}
	if value <= p.Min || value >= p.Max {
		return 0, false, p.OutOfRange
	}
	return value, false, ""
}

// ParseYesNo looks for a yes/y or no/n word in text, ignoring case and
// surrounding punctuation. ok is false when there is none or both.
func ParseYesNo(text string) (yes bool, ok bool) {
	var sawYes, sawNo bool
	for _, word := range strings.Fields(strings.ToLower(text)) {
		switch strings.Trim(word, ".,!?;:\"'()") {
		case "yes", "y":
			sawYes = true
		case "no", "n":
			sawNo = true
		}
	}
	if sawYes == sawNo {
		return false, false
	}
	return sawYes, true
}

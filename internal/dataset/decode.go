package dataset

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"schoolpulse/internal/config"
)

// decode converts raw file bytes to UTF-8 without a byte order mark.
// In auto mode valid UTF-8 is kept and anything else is read as Shift_JIS,
// the encoding the bureau's spreadsheets export by default.
func decode(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case config.EncodingAuto, "":
		if utf8.Valid(data) {
			return stripBOM(data)
		}
		return fromShiftJIS(data)
	case config.EncodingUTF8:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("content is not valid UTF-8")
		}
		return stripBOM(data)
	case config.EncodingShiftJIS:
		return fromShiftJIS(data)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func stripBOM(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	return out, err
}

func fromShiftJIS(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("shift_jis decode: %w", err)
	}
	return out, nil
}

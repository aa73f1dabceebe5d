package settings

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Setting keys used by the patient record module.
const (
	KeyDateFormat     = "date_format"
	KeyCurrencySymbol = "currency_symbol"
)

// Store holds clinic-wide display settings. Values come from the environment
// or a settings file, with defaults matching a fresh installation.
type Store struct {
	v *viper.Viper
}

func NewStore() *Store {
	v := viper.New()
	v.SetDefault(KeyDateFormat, "dd/mm/yyyy")
	v.SetDefault(KeyCurrencySymbol, "$")
	v.SetEnvPrefix("CLINIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Store{v: v}
}

// GetSetting returns the string value for a settings key.
func (s *Store) GetSetting(key string) string {
	return s.v.GetString(key)
}

// SetSetting overrides a settings value for the running process.
func (s *Store) SetSetting(key, value string) {
	s.v.Set(key, value)
}

// patternReplacer maps the settings-file date tokens onto Go's reference
// layout. Longer tokens first so "yyyy" is not consumed as two "yy".
var patternReplacer = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"mm", "01",
	"dd", "02",
)

// FormatDate renders a timestamp using the clinic's date pattern, e.g.
// "dd/mm/yyyy" -> "28/02/2026".
func FormatDate(t time.Time, pattern string) string {
	return t.Format(patternReplacer.Replace(pattern))
}

package retention

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"retentionflow-backend/models"
	"retentionflow-backend/utils"
)

// Placeholders understood by ReplaceTemplateVariables.
const (
	VarName        = "name"
	VarServiceType = "service_type"
	VarStylist     = "stylist"
	VarDays        = "days"
)

var placeholderRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ReplaceTemplateVariables renders a message template for client. When days
// is nil the absolute distance between today and the client's next-due date
// is used, or 0 when the client has none.
func ReplaceTemplateVariables(tmpl string, client models.Client, days *int, today time.Time) string {
	n := 0
	switch {
	case days != nil:
		n = *days
	case client.NextDue != nil:
		n = DaysUntilDue(*client.NextDue, today)
		if n < 0 {
			n = -n
		}
	}

	return strings.NewReplacer(
		"{{"+VarName+"}}", client.Name,
		"{{"+VarServiceType+"}}", client.ServiceType,
		"{{"+VarStylist+"}}", client.StylistName(),
		"{{"+VarDays+"}}", strconv.Itoa(n),
	).Replace(tmpl)
}

// ExtractVariables returns the placeholder names of tmpl in order of first
// appearance.
func ExtractVariables(tmpl string) []string {
	names := lo.Map(placeholderRegex.FindAllStringSubmatch(tmpl, -1), func(m []string, _ int) string {
		return m[1]
	})
	return lo.Uniq(names)
}

// MissingVariables returns the names in want that have no placeholder in text.
func MissingVariables(want []string, text string) []string {
	return lo.Filter(want, func(name string, _ int) bool {
		return !strings.Contains(text, "{{"+name+"}}")
	})
}

// WhatsAppLink builds a wa.me deep link with a pre-filled message.
func WhatsAppLink(phone, message string) string {
	return "https://wa.me/" + utils.DigitsOnly(phone) + "?text=" + encodeURIComponent(message)
}

// SMSLink builds an sms: URI with a pre-filled body.
func SMSLink(phone, message string) string {
	return "sms:" + utils.CleanPhone(phone) + "?body=" + encodeURIComponent(message)
}

// encodeURIComponent escapes a message for a query value using %20 for
// spaces, which messaging apps render literally otherwise.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

package retention

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"retentionflow-backend/models"
)

func TestReplaceTemplateVariables(t *testing.T) {
	c := client("Maya", "Color", "2025-01-01", "2025-02-12", ptr("Ana"))
	tmpl := "Hi {{name}}, your {{service_type}} with {{stylist}} is due in {{days}} days. {{name}}!"

	got := ReplaceTemplateVariables(tmpl, c, ptr(3), date("2025-02-01"))
	assert.Equal(t, "Hi Maya, your Color with Ana is due in 3 days. Maya!", got)
	assert.Empty(t, ExtractVariables(got))
}

func TestReplaceTemplateVariablesDerivesDays(t *testing.T) {
	c := client("Maya", "Color", "2025-01-01", "2025-02-12", nil)

	assert.Equal(t, "5 days, ", ReplaceTemplateVariables("{{days}} days, {{stylist}}", c, nil, date("2025-02-17")))
	assert.Equal(t, "11", ReplaceTemplateVariables("{{days}}", c, nil, date("2025-02-01")))

	c.NextDue = nil
	assert.Equal(t, "0", ReplaceTemplateVariables("{{days}}", c, nil, date("2025-02-01")))
}

func TestReplaceTemplateVariablesKeepsUnknownPlaceholders(t *testing.T) {
	got := ReplaceTemplateVariables("See you {{when}}", models.Client{Name: "x"}, ptr(1), date("2025-01-01"))
	assert.Equal(t, "See you {{when}}", got)
}

func TestExtractAndMissingVariables(t *testing.T) {
	vars := ExtractVariables("{{name}} {{stylist}} {{name}} {{ days }} {{service_type}}")
	assert.Equal(t, []string{"name", "stylist", "service_type"}, vars)

	missing := MissingVariables(vars, "Hello {{name}}, book your {{service_type}}")
	assert.Equal(t, []string{"stylist"}, missing)
	assert.Empty(t, MissingVariables(vars, "{{service_type}}{{stylist}}{{name}}"))
}

func TestWhatsAppLink(t *testing.T) {
	got := WhatsAppLink("+1 (555) 010-2030", "Hi Maya & co, 100% ready?")
	assert.Equal(t, "https://wa.me/15550102030?text=Hi%20Maya%20%26%20co%2C%20100%25%20ready%3F", got)
}

func TestSMSLink(t *testing.T) {
	assert.Equal(t, "sms:+15550102030?body=a%2Bb%20c", SMSLink("+1 555-010-2030", "a+b c"))
}

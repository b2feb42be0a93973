package sms

import "fmt"

// defaultTemplate mirrors the wording users already know from the mobile
// apps. The two placeholders are the app name and the security code.
const defaultTemplate = "Welcome to %s! Please use security code %s to proceed."

// Composer renders the verification message body.
type Composer struct {
	appName  string
	template string
}

// NewComposer builds a composer for the given app name using the default
// template.
func NewComposer(appName string) *Composer {
	return &Composer{appName: appName, template: defaultTemplate}
}

// NewComposerWithTemplate overrides the message template. The template must
// contain two %s verbs: app name first, security code second.
func NewComposerWithTemplate(appName, template string) *Composer {
	return &Composer{appName: appName, template: template}
}

// Compose renders the message for one security code.
func (c *Composer) Compose(securityCode string) string {
	return fmt.Sprintf(c.template, c.appName, securityCode)
}

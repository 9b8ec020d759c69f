package assets

import (
	_ "embed"
)

// SettingsSchema is the JSON schema of the persisted settings file.
//
//go:embed settings.schema.json
var SettingsSchema []byte

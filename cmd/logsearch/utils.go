package logsearch

// pick returns the command-line value when the flag was given explicitly,
// otherwise the preset value when set, otherwise the flag default.
func pick[T any](changed bool, cli T, preset *T) T {
	if changed || preset == nil {
		return cli
	}
	return *preset
}

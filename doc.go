// Package addonprefs renders an extension's declarative preference schema into a
// settings panel and persists the chosen values into a namespaced preference store.
//
// The flow is Validate, then SeedDefaults, then one Renderer pass each time the host
// announces that the extension's options panel is displayed. The host document,
// preference store, event bus and localization pass are consumed through the
// interfaces in interfaces.go; the dom, storage, cache, events and l10n packages
// provide concrete implementations.
package addonprefs

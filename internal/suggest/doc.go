// Package suggest holds the suggestion-widget controller core: the debouncer,
// the cancellable fetcher with its transports and wire decoders, the list
// model, and the selection navigator. It has no knowledge of rendering; the
// ui package binds it to a text field.
package suggest

// Package iocs manages compromise-indicator rules and the findings they
// produce.
//
// The rule file is a YAML list of known stalkerware/spyware entries, each
// naming the Android package ids and accessibility service ids it ships
// under. The file lives in the user config directory
// (e.g. ~/.config/droidtriage/indicators.yaml) and is fetched or updated
// with the "update-iocs" command. Loading reports the sha256 of the file
// content so scans can record exactly which rule revision they ran with.
//
// A Suspicion is one matched indicator. The scanner and UI treat it as an
// opaque record: what makes something suspicious is decided entirely by
// the rule entries in this package.
package iocs

package modeladapter

// ProviderKind selects the payload-building and extraction strategy.
type ProviderKind string

const (
	KindMistral   ProviderKind = "mistral"
	KindOpenAI    ProviderKind = "openai"
	KindAnthropic ProviderKind = "anthropic"
	KindGeneric   ProviderKind = "generic"
)

// ParseKind maps a configuration string to a ProviderKind. Unknown values
// fall back to KindGeneric rather than failing.
func ParseKind(s string) ProviderKind {
	switch k := ProviderKind(s); k {
	case KindMistral, KindOpenAI, KindAnthropic, KindGeneric:
		return k
	default:
		return KindGeneric
	}
}

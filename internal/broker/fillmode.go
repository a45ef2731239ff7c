package broker

// FillMode is the order-filling policy communicated to the terminal.
type FillMode string

const (
	FillModeFOK    FillMode = "FOK"
	FillModeIOC    FillMode = "IOC"
	FillModeReturn FillMode = "RETURN"
)

// ResolveFillMode implements §4.6's fill-mode selection: prefer fill-or-kill
// when the symbol supports it, fall back to immediate-or-cancel, and only
// use RETURN (partial fills allowed to rest) when neither bit is set.
func ResolveFillMode(fillingMode int) FillMode {
	switch {
	case fillingMode&1 != 0:
		return FillModeFOK
	case fillingMode&2 != 0:
		return FillModeIOC
	default:
		return FillModeReturn
	}
}

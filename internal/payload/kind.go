package payload

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindCar    Kind = "car"
	KindClient Kind = "client"
	KindRental Kind = "rental"
)

var kindAliases = map[string]Kind{
	"car":      KindCar,
	"cars":     KindCar,
	"carro":    KindCar,
	"carros":   KindCar,
	"client":   KindClient,
	"clients":  KindClient,
	"cliente":  KindClient,
	"clientes": KindClient,
	"rental":   KindRental,
	"rentals":  KindRental,
	"locacao":  KindRental,
	"locacoes": KindRental,
}

func ParseKind(raw string) (Kind, bool) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw))]
	return kind, ok
}

// Decode normalizes raw into the canonical record for kind.
func Decode(kind Kind, raw []byte) (any, error) {
	switch kind {
	case KindCar:
		return DecodeCar(raw)
	case KindClient:
		return DecodeClient(raw)
	case KindRental:
		return DecodeRental(raw)
	default:
		return nil, fmt.Errorf("%w: unknown record kind %q", ErrMalformedPayload, kind)
	}
}

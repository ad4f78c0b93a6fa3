package protocols

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/rebalancer/internal/domain"
)

// Descriptor is the tagged wire and storage form of a Protocol. Exactly one
// variant field is set and it matches Type.
type Descriptor struct {
	Type          Type           `json:"type" msgpack:"type"`
	StableLending *StableLending `json:"stable_lending,omitempty" msgpack:"stable_lending,omitempty"`
	YieldFarming  *YieldFarming  `json:"yield_farming,omitempty" msgpack:"yield_farming,omitempty"`
	LiquidStaking *LiquidStaking `json:"liquid_staking,omitempty" msgpack:"liquid_staking,omitempty"`
}

// Describe wraps p in its descriptor.
func Describe(p Protocol) Descriptor {
	switch v := p.(type) {
	case StableLending:
		return Descriptor{Type: TypeStableLending, StableLending: &v}
	case YieldFarming:
		return Descriptor{Type: TypeYieldFarming, YieldFarming: &v}
	case LiquidStaking:
		return Descriptor{Type: TypeLiquidStaking, LiquidStaking: &v}
	default:
		return Descriptor{}
	}
}

// Protocol unwraps the descriptor.
func (d Descriptor) Protocol() (Protocol, error) {
	switch d.Type {
	case TypeStableLending:
		if d.StableLending != nil {
			return *d.StableLending, nil
		}
	case TypeYieldFarming:
		if d.YieldFarming != nil {
			return *d.YieldFarming, nil
		}
	case TypeLiquidStaking:
		if d.LiquidStaking != nil {
			return *d.LiquidStaking, nil
		}
	default:
		return nil, domain.ErrUnknownProtocol
	}
	return nil, fmt.Errorf("protocol %s: missing parameters: %w", d.Type, domain.ErrUnknownProtocol)
}

// Marshal encodes p with msgpack for storage.
func Marshal(p Protocol) ([]byte, error) {
	d := Describe(p)
	if d.Type == "" {
		return nil, domain.ErrUnknownProtocol
	}
	data, err := msgpack.Marshal(&d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode protocol: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a protocol stored by Marshal.
func Unmarshal(data []byte) (Protocol, error) {
	var d Descriptor
	if err := msgpack.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode protocol: %w", err)
	}
	return d.Protocol()
}

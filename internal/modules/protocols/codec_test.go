package protocols

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/domain"
)

func TestMarshal_PreservesVariant(t *testing.T) {
	for _, p := range []Protocol{validStableLending(), validYieldFarming(), validLiquidStaking()} {
		t.Run(string(p.Type()), func(t *testing.T) {
			data, err := Marshal(p)
			require.NoError(t, err)

			decoded, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, p, decoded)
		})
	}
}

func TestUnmarshal_Garbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xc1})
	assert.Error(t, err)
}

func TestDescriptor_MissingParameters(t *testing.T) {
	_, err := Descriptor{Type: TypeYieldFarming}.Protocol()
	assert.ErrorIs(t, err, domain.ErrUnknownProtocol)

	_, err = Descriptor{Type: "perpetuals"}.Protocol()
	assert.ErrorIs(t, err, domain.ErrUnknownProtocol)
}

func TestDescriptor_JSON(t *testing.T) {
	raw := `{"type":"liquid_staking","liquid_staking":{"validator_id":"8b0e4c1a-3f55-4a8e-9a51-0c1f0f1d2e3a","stake_pool":"1d3c5b7a-9e8f-4a6b-8c2d-3e4f5a6b7c8d","unstake_delay_epochs":3,"commission_bps":700}}`

	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	p, err := d.Protocol()
	require.NoError(t, err)

	ls, ok := p.(LiquidStaking)
	require.True(t, ok)
	assert.Equal(t, uint16(700), ls.CommissionBps)
	assert.Equal(t, uint32(3), ls.UnstakeDelayEpochs)
	assert.Equal(t, "8b0e4c1a-3f55-4a8e-9a51-0c1f0f1d2e3a", ls.ValidatorID.String())
}

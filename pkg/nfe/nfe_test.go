package nfe_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/pkg/nfe"
)

func TestValidNCM(t *testing.T) {
	assert.True(t, nfe.ValidNCM("22030000"))
	assert.True(t, nfe.ValidNCM(" 22030000 "))
	assert.False(t, nfe.ValidNCM("2203"))
	assert.False(t, nfe.ValidNCM("2203000A"))
	assert.False(t, nfe.ValidNCM(""))
	assert.False(t, nfe.ValidNCM("220300001"))
}

func TestValidateCNPJ(t *testing.T) {
	require.NoError(t, nfe.ValidateCNPJ("11.222.333/0001-81"))
	require.NoError(t, nfe.ValidateCNPJ("11222333000181"))

	assert.Error(t, nfe.ValidateCNPJ("11.222.333/0001-82"), "verificador alterado")
	assert.Error(t, nfe.ValidateCNPJ("1122233300018"), "13 dígitos")
	assert.Error(t, nfe.ValidateCNPJ("00000000000000"), "dígitos repetidos")
	assert.Equal(t, "11222333000181", nfe.NormalizeCNPJ("11.222.333/0001-81"))
	assert.Equal(t, "11.222.333/0001-81", nfe.FormatCNPJ("11222333000181"))
	assert.Equal(t, "123", nfe.FormatCNPJ("123"))
}

func TestAccessKeyDigit(t *testing.T) {
	base := "3524011122233300018155001000000123100000012"
	require.Len(t, base, 43)

	dv, err := nfe.ComputeAccessKeyDigit(base)
	require.NoError(t, err)

	key := base + string(dv)
	assert.True(t, nfe.ValidAccessKey(key))

	// verificador alterado
	wrong := byte('0' + (dv-'0'+1)%10)
	assert.False(t, nfe.ValidAccessKey(base+string(wrong)))
	assert.False(t, nfe.ValidAccessKey(strings.Repeat("1", 43)))

	_, err = nfe.ComputeAccessKeyDigit("123")
	assert.Error(t, err)
}

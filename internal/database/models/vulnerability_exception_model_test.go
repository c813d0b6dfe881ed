package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExceptionScopeGlobality(t *testing.T) {
	assetID := uuid.New()
	pattern := "10.0.0.*"
	product := "nginx"

	assetScoped := VulnerabilityException{Scope: ExceptionScopeAsset, AssetID: &assetID}
	ipScoped := VulnerabilityException{Scope: ExceptionScopeIP, IPPattern: &pattern}
	productScoped := VulnerabilityException{Scope: ExceptionScopeProduct, Product: &product}

	assert.False(t, assetScoped.IsGlobal())
	assert.True(t, ipScoped.IsGlobal())
	assert.True(t, productScoped.IsGlobal())
}

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetupProvider_NoEndpoint(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := SetupProvider(context.Background(), Config{ServiceName: "kepixel-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetupProvider_Insecure(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := SetupProvider(context.Background(), Config{
		ServiceName: "kepixel-test",
		Endpoint:    "127.0.0.1:4317",
		Insecure:    true,
		Headers:     map[string]string{"x-team": "analytics"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, before, otel.GetTracerProvider())
	_ = shutdown(context.Background())
}

func TestResource(t *testing.T) {
	res, err := Resource(context.Background(), Config{Environment: "dev"})
	require.NoError(t, err)

	set := res.Set()
	name, ok := set.Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "kepixel", name.AsString())

	env, ok := set.Value(attribute.Key("deployment.environment"))
	require.True(t, ok)
	assert.Equal(t, "dev", env.AsString())
}

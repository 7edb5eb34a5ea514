package main_test

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	main "github.com/hazyhaar/doctext/cmd/doctext"
)

func TestNewMCPServer_ListsTools(t *testing.T) {
	t.Parallel()

	srv := main.NewMCPServer(testDeps(nil))
	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	res, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"doctext_extract", "doctext_media_types"}, names)
}

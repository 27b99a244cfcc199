package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	vectormemory "github.com/custodia-labs/docrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/core/services"
)

// fakeIngestion completes every document with a fixed chunk count.
type fakeIngestion struct {
	docs      *memory.DocumentStore
	processed []string
	err       error
}

func (f *fakeIngestion) Process(ctx context.Context, documentID string) error {
	f.processed = append(f.processed, documentID)
	if f.err != nil {
		if uerr := f.docs.UpdateStatus(ctx, documentID, domain.DocumentStatusFailed); uerr != nil {
			return uerr
		}
		return f.err
	}
	return f.docs.CompleteDocument(ctx, documentID, 3)
}

func (f *fakeIngestion) Submit(ctx context.Context, documentID string) error {
	return f.Process(ctx, documentID)
}

func (f *fakeIngestion) Wait() {}

func (f *fakeIngestion) Close() error { return nil }

// fakeRAG answers every question with the same grounded reply.
type fakeRAG struct {
	requests []driving.QueryRequest
	err      error
}

func (f *fakeRAG) Query(_ context.Context, req driving.QueryRequest) (*driving.QueryResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &driving.QueryResult{
		Content: "The report covers Q3 revenue.",
		Sources: []domain.Source{
			{DocumentID: "doc-1", DocumentTitle: "Report", ChunkIndex: 2, Content: "Q3 revenue", Similarity: 0.87},
		},
	}, nil
}

type testEnv struct {
	docs      *memory.DocumentStore
	ingestion *fakeIngestion
	rag       *fakeRAG
	config    *memory.ConfigStore
	ports     *Ports
}

// setupTestServices installs in-memory services and resets flag state.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	docs := memory.NewDocumentStore()
	rag := &fakeRAG{}
	config := memory.NewConfigStore(nil)
	env := &testEnv{
		docs:      docs,
		ingestion: &fakeIngestion{docs: docs},
		rag:       rag,
		config:    config,
	}
	env.ports = &Ports{
		Documents: services.NewDocumentService(docs, memory.NewObjectStore(), vectormemory.New(), ""),
		Ingestion: env.ingestion,
		RAG:       rag,
		Chat:      services.NewChatService(memory.NewChatStore(), rag),
	}

	resetFlags()
	SetServices(services.NewSettingsService(config, nil), env.ports)
	t.Cleanup(func() {
		SetServices(nil, nil)
		resetFlags()
	})
	return env
}

func resetFlags() {
	userID = defaultUserID
	verbose = false
	documentsJSON = false
	uploadName = ""
	uploadIngest = false
	importInclude = nil
	importExclude = nil
	importWatch = false
	sessionsJSON = false
	sessionTitle = ""
	sessionDocIDs = nil
	askDocIDs = nil
	askSession = ""
	askJSON = false
	chatSession = ""
	chatDocIDs = nil
	chatPlain = false
	serveAddr = ""
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// upload stores a text document directly through the document service.
func (e *testEnv) upload(t *testing.T, name, content string) *domain.Document {
	t.Helper()
	doc, err := e.ports.Documents.Upload(context.Background(), driving.UploadRequest{
		UserID:   defaultUserID,
		FileName: name,
		Data:     []byte(content),
	})
	require.NoError(t, err)
	return doc
}

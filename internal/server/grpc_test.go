package server

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

func dialBufconn(t *testing.T, ext ExtractionServiceServer) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, _ := NewGRPCServer(ext, nil)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func callProcess(ctx context.Context, conn *grpc.ClientConn, fields map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	err = conn.Invoke(ctx, ProcessMethod, in, out)
	return out, err
}

func TestGRPCProcess(t *testing.T) {
	fe := &fakeExtractor{res: completedResult()}
	conn := dialBufconn(t, NewExtractionGRPC(fe, "", nil))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-request-id", "req-42")
	out, err := callProcess(ctx, conn, map[string]any{"path": "/data/letter.txt", "format": "TEXT"})
	require.NoError(t, err)

	assert.Equal(t, "/data/letter.txt", fe.path)
	assert.Equal(t, constants.FormatText, fe.format)
	assert.Equal(t, "req-42", fe.reqID)

	m := out.AsMap()
	assert.Equal(t, "job-1", m["job_id"])
	assert.Equal(t, "completed", m["status"])
	cls := m["classification"].(map[string]any)
	assert.Equal(t, true, cls["is_referral"])
	assert.InDelta(t, 49, cls["score"], 0)
}

func TestGRPCProcessValidation(t *testing.T) {
	conn := dialBufconn(t, NewExtractionGRPC(&fakeExtractor{}, "", nil))

	_, err := callProcess(context.Background(), conn, map[string]any{"format": "pdf"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = callProcess(context.Background(), conn, map[string]any{"path": "/x.pdf", "format": "spreadsheet"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = callProcess(context.Background(), conn, map[string]any{"path": "/x.xlsx"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCProcessErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{common.UnsupportedFormatError("xlsx"), codes.InvalidArgument},
		{common.TextReadError("read", errors.New("eof")), codes.FailedPrecondition},
		{common.ExtractionFailedError("model request failed", nil), codes.Unavailable},
		{common.OCRFailureError("ocr", nil), codes.Internal},
	}
	for _, tc := range cases {
		conn := dialBufconn(t, NewExtractionGRPC(&fakeExtractor{err: tc.err}, "", nil))
		_, err := callProcess(context.Background(), conn, map[string]any{"path": "/x.pdf"})
		assert.Equal(t, tc.code, status.Code(err), tc.err.Error())
	}
}

func TestGRPCProcessFailureCarriesOutcome(t *testing.T) {
	res := completedResult()
	res.Outcome.Status = constants.StatusFailed
	res.Outcome.Record = nil
	fe := &fakeExtractor{res: res, err: common.ExtractionFailedError("model request failed", errors.New("connection refused"))}
	conn := dialBufconn(t, NewExtractionGRPC(fe, "", nil))

	_, err := callProcess(context.Background(), conn, map[string]any{"path": "/data/letter.pdf"})
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))

	detail := OutcomeFromStatus(err)
	require.NotNil(t, detail)
	m := detail.AsMap()
	assert.Equal(t, "job-1", m["job_id"])
	assert.Equal(t, "failed", m["status"])
	assert.Contains(t, m["error"], "model request failed")
	cls := m["classification"].(map[string]any)
	assert.Equal(t, true, cls["is_referral"])

	assert.Nil(t, OutcomeFromStatus(errors.New("plain")))
}

func TestGRPCProcessRoot(t *testing.T) {
	root := t.TempDir()
	fe := &fakeExtractor{res: completedResult()}
	conn := dialBufconn(t, NewExtractionGRPC(fe, root, nil))

	_, err := callProcess(context.Background(), conn, map[string]any{"path": filepath.Join(root, "..", "etc", "passwd.txt")})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = callProcess(context.Background(), conn, map[string]any{"path": filepath.Join(root, "in", "a.txt")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "in", "a.txt"), fe.path)
}

func TestGRPCHealth(t *testing.T) {
	conn := dialBufconn(t, NewExtractionGRPC(&fakeExtractor{}, "", nil))
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ExtractionServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}

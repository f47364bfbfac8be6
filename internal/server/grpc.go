package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

const (
	ExtractionServiceName = "referral.v1.ExtractionService"
	ProcessMethod         = "/" + ExtractionServiceName + "/Process"
)

// ExtractionServiceServer processes a document already on the server's disk.
// Request fields: path (required), format (optional tag). The response is the
// outcome JSON with job_id, file_type and source_file.
type ExtractionServiceServer interface {
	Process(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Process", Handler: processHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "referral/v1/extraction.proto",
}

func processHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServiceServer).Process(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProcessMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServiceServer).Process(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type ExtractionGRPC struct {
	svc    Extractor
	root   string // when set, paths must resolve beneath it
	logger *slog.Logger
}

func NewExtractionGRPC(svc Extractor, root string, logger *slog.Logger) *ExtractionGRPC {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionGRPC{svc: svc, root: root, logger: logger}
}

func (s *ExtractionGRPC) Process(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	path := strings.TrimSpace(fields["path"].GetStringValue())
	format := strings.ToLower(strings.TrimSpace(fields["format"].GetStringValue()))

	v := common.NewValidator().
		Field("path", path, common.Required).
		Field("format", format, common.KnownFormat)
	if format == "" && path != "" {
		v.Field("path", path, common.SupportedFilename)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	abs, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.ProcessPath(ctx, abs, constants.SourceFormat(format))
	resp := uploadResponse{
		JobID:             res.JobID,
		FileType:          res.FileType,
		SourceFile:        res.SourceFile,
		ExtractionOutcome: res.Outcome,
	}
	if err != nil {
		s.logger.Warn("grpc.process.failed", "path", abs, "job_id", res.JobID, "error", err)
		resp.Error = err.Error()
		return nil, s.failure(err, resp)
	}

	out, err := toStruct(resp)
	if err != nil {
		return nil, common.InternalError("encode outcome: " + err.Error())
	}
	return out, nil
}

// failure maps err to a status and attaches the partial outcome (status,
// text stats, classification) as a Struct detail.
func (s *ExtractionGRPC) failure(err error, resp uploadResponse) error {
	st := status.Convert(common.ToStatus(err))
	detail, encErr := toStruct(resp)
	if encErr != nil {
		s.logger.Warn("grpc.process.detail_failed", "job_id", resp.JobID, "error", encErr)
		return st.Err()
	}
	withDetail, detErr := st.WithDetails(detail)
	if detErr != nil {
		s.logger.Warn("grpc.process.detail_failed", "job_id", resp.JobID, "error", detErr)
		return st.Err()
	}
	return withDetail.Err()
}

// OutcomeFromStatus returns the outcome detail carried by a failed Process
// call, or nil.
func OutcomeFromStatus(err error) *structpb.Struct {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	for _, d := range st.Details() {
		if out, ok := d.(*structpb.Struct); ok {
			return out
		}
	}
	return nil
}

func (s *ExtractionGRPC) resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", common.InvalidArgumentErrorf("invalid path %q", path)
	}
	if s.root == "" {
		return abs, nil
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", common.InternalError("invalid processing root")
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", status.Errorf(codes.PermissionDenied, "path %q is outside the processing root", path)
	}
	return abs, nil
}

// toStruct converts any JSON-encodable value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// NewGRPCServer registers the extraction service and the standard health
// service on a new server. The health server is returned so callers can flip
// it to NOT_SERVING during shutdown.
func NewGRPCServer(ext ExtractionServiceServer, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryRequestID(), unaryLogger(logger)))
	srv.RegisterService(&ExtractionServiceDesc, ext)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ExtractionServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return srv, hs
}

func unaryRequestID() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				id = v[0]
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		return handler(common.WithRequestID(ctx, id), req)
	}
}

func unaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelInfo
		if code != codes.OK {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "grpc.request",
			"method", info.FullMethod,
			"code", code.String(),
			"req_id", common.RequestIDFromContext(ctx),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

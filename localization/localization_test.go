package localization_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/pitabwire/telereso/localization"
	lconnect "github.com/pitabwire/telereso/localization/interceptors/connect"
	lgrpc "github.com/pitabwire/telereso/localization/interceptors/grpc"
	lhttp "github.com/pitabwire/telereso/localization/interceptors/http"
)

type LocalizationTestSuite struct {
	suite.Suite
	manager localization.Manager
}

func TestLocalizationSuite(t *testing.T) {
	suite.Run(t, &LocalizationTestSuite{})
}

func (s *LocalizationTestSuite) SetupSuite() {
	manager, err := localization.NewManager("testdata", "en", "es")
	s.Require().NoError(err)
	s.manager = manager
}

func (s *LocalizationTestSuite) TestNewManagerMissingFile() {
	_, err := localization.NewManager("testdata", "de")
	s.Error(err)
}

func (s *LocalizationTestSuite) TestLanguages() {
	s.ElementsMatch([]string{"en", "es"}, s.manager.Languages())
	s.NotNil(s.manager.Bundle())
}

func (s *LocalizationTestSuite) TestLocalizedDefault() {
	testCases := []struct {
		name     string
		ctx      context.Context
		key      string
		hint     string
		expected string
	}{
		{name: "hint match", ctx: context.Background(), key: "hello", hint: "es", expected: "Hola"},
		{name: "normalized hint", ctx: context.Background(), key: "hello", hint: "es_mx", expected: "Hola"},
		{name: "english fallback", ctx: context.Background(), key: "bye", hint: "es", expected: "Bye"},
		{name: "unknown locale", ctx: context.Background(), key: "hello", hint: "fr", expected: "Hello"},
		{
			name:     "context languages",
			ctx:      localization.ToContext(context.Background(), []string{"es"}),
			key:      "hello",
			expected: "Hola",
		},
		{name: "missing key", ctx: context.Background(), key: "nope", hint: "es", expected: ""},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, s.manager.LocalizedDefault(tc.ctx, tc.key, tc.hint))
		})
	}
}

func (s *LocalizationTestSuite) TestContextAndMapHelpers() {
	ctx := localization.ToContext(context.Background(), []string{"fr", "en"})
	s.Equal([]string{"fr", "en"}, localization.FromContext(ctx))
	s.Nil(localization.FromContext(context.Background()))

	m := localization.ToMap(map[string]string{}, []string{"sw", "en"})
	s.Equal("sw,en", m["lang"])
	s.Equal([]string{"sw", "en"}, localization.FromMap(m))
	s.Nil(localization.FromMap(map[string]string{}))
}

func (s *LocalizationTestSuite) TestParseAcceptLanguage() {
	s.Equal([]string{"fr-CH", "fr", "en"}, localization.ParseAcceptLanguage("fr-CH, fr;q=0.9, en;q=0.8"))
	s.Nil(localization.ParseAcceptLanguage(""))
}

func (s *LocalizationTestSuite) TestHTTPMiddleware() {
	var got []string
	handler := lhttp.LanguageHTTPMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = localization.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/strings?lang=sw", nil)
	req.Header.Set("Accept-Language", "es-MX, en;q=0.5")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	s.Equal([]string{"sw", "es-MX", "en"}, got)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/strings", nil))
	s.Nil(got)
}

func (s *LocalizationTestSuite) TestGrpcInterceptors() {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("accept-language", "pt-BR"))

	var got []string
	_, err := lgrpc.LanguageUnaryInterceptor()(ctx, nil, &grpc.UnaryServerInfo{},
		func(hctx context.Context, _ any) (any, error) {
			got = localization.FromContext(hctx)
			return nil, nil
		})
	s.Require().NoError(err)
	s.Equal([]string{"pt-BR"}, got)

	got = nil
	err = lgrpc.LanguageStreamInterceptor()(nil, &fakeServerStream{ctx: ctx}, &grpc.StreamServerInfo{},
		func(_ any, stream grpc.ServerStream) error {
			got = localization.FromContext(stream.Context())
			return nil
		})
	s.Require().NoError(err)
	s.Equal([]string{"pt-BR"}, got)

	got = []string{"unchanged"}
	err = lgrpc.LanguageStreamInterceptor()(nil, &fakeServerStream{ctx: context.Background()}, &grpc.StreamServerInfo{},
		func(_ any, stream grpc.ServerStream) error {
			got = localization.FromContext(stream.Context())
			return nil
		})
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *LocalizationTestSuite) TestConnectInterceptor() {
	interceptor := lconnect.NewLanguageInterceptor()

	req := connect.NewRequest(&struct{}{})
	req.Header().Set("Accept-Language", "sw")

	var got []string
	_, err := interceptor.WrapUnary(func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		got = localization.FromContext(ctx)
		return nil, nil
	})(context.Background(), req)
	s.Require().NoError(err)
	s.Equal([]string{"sw"}, got)

	got = nil
	header := http.Header{}
	header.Set("Accept-Language", "es")
	err = interceptor.WrapStreamingHandler(func(ctx context.Context, _ connect.StreamingHandlerConn) error {
		got = localization.FromContext(ctx)
		return nil
	})(context.Background(), &fakeHandlerConn{header: header})
	s.Require().NoError(err)
	s.Equal([]string{"es"}, got)
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeServerStream) Context() context.Context {
	return f.ctx
}

type fakeHandlerConn struct {
	connect.StreamingHandlerConn
	header http.Header
}

func (f *fakeHandlerConn) RequestHeader() http.Header {
	return f.header
}

package http

import (
	"context"
	"net/url"
	"time"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

const scopeHTTP = "Http"

// Register installs Http.fetch, dispatching every request through
// client's worker pool.
func Register(reg *library.Registry, client *Client) {
	reg.Register(scopeHTTP, fetchFunc{client: client})
}

// fetchFunc is implemented directly against vm.LibraryFunction, rather
// than through library.Func, because fetch must suspend the calling
// process between dispatch and completion — something a single
// synchronous library.Impl call cannot express. Build instead emits two
// instructions: one that hands the request to the reactor and parks on
// its waker, and one that, once woken, takes the finished result out of
// the shared Cell and pushes it onto the operand stack.
type fetchFunc struct {
	client *Client
}

func (fetchFunc) Name() string  { return "fetch" }
func (fetchFunc) IsAsync() bool { return true }

func (fetchFunc) Params() []vm.Param {
	return []vm.Param{
		library.P("url", "string"),
		library.PDefault("method", "string", value.Str("GET")),
		library.PDefault("body", "string", value.Str("")),
		library.PDefault("headers", "map", value.MapVal(value.NewMap())),
		library.PDefault("query", "map", value.MapVal(value.NewMap())),
		library.PDefault("bearer", "string", value.Str("")),
		library.PDefault("timeout", "number", value.Int(0)),
	}
}

func (fetchFunc) ReturnType() string { return "map" }

func (f fetchFunc) Build(_ int, _ *vm.Env) (vm.Instructions, error) {
	cell := NewCell()
	return vm.Instructions{
		dispatchFetch{client: f.client, cell: cell},
		collectFetch{cell: cell},
	}, nil
}

type dispatchFetch struct {
	client *Client
	cell   *Cell
}

func (i dispatchFetch) Exec(ctx context.Context, env *vm.Env, _ *graphstore.Graph) (vm.Signal, error) {
	req, err := buildRequest(env)
	if err != nil {
		return vm.SigNone, err
	}
	i.client.Dispatch(ctx, req, i.cell)
	env.Pending = vm.PendingEffect{Kind: vm.EffectSleepWaker, Waker: i.cell.Waker()}
	return vm.SigNone, nil
}

type collectFetch struct {
	cell *Cell
}

func (i collectFetch) Exec(_ context.Context, env *vm.Env, _ *graphstore.Graph) (vm.Signal, error) {
	res, ok := i.cell.Take()
	if !ok {
		return vm.SigNone, stoferr.New(stoferr.Custom, scopeHTTP, "fetch woke with no result")
	}
	env.Push(resultValue(res))
	return vm.SigNone, nil
}

func lookupStr(env *vm.Env, name, def string) string {
	if v, ok := env.Lookup(name); ok {
		if s, ok := v.Value.Unbox().AsString(); ok {
			return s
		}
	}
	return def
}

func lookupMap(env *vm.Env, name string) value.Map {
	if v, ok := env.Lookup(name); ok {
		if m, ok := v.Value.Unbox().AsMap(); ok {
			return m
		}
	}
	return value.NewMap()
}

func lookupSeconds(env *vm.Env, name string) time.Duration {
	if v, ok := env.Lookup(name); ok {
		if n, ok := v.Value.Unbox().AsNumber(); ok {
			return time.Duration(n.Float64() * float64(time.Second))
		}
	}
	return 0
}

func buildRequest(env *vm.Env) (Request, error) {
	rawURL := lookupStr(env, "url", "")
	if rawURL == "" {
		return Request{}, stoferr.New(stoferr.Argument, scopeHTTP, "fetch requires a url")
	}
	query := lookupMap(env, "query")
	if query.Len() > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return Request{}, stoferr.New(stoferr.Argument, scopeHTTP, "invalid url").WithDetail("url", rawURL)
		}
		q := u.Query()
		for _, e := range query.Entries() {
			k, _ := e.Key.AsString()
			v, _ := e.Value.AsString()
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}

	headers := map[string]string{}
	for _, e := range lookupMap(env, "headers").Entries() {
		k, _ := e.Key.AsString()
		v, _ := e.Value.AsString()
		headers[k] = v
	}

	method := lookupStr(env, "method", "GET")
	switch method {
	case "GET", "HEAD", "POST", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH":
	default:
		return Request{}, stoferr.New(stoferr.Argument, scopeHTTP, "unsupported method").WithDetail("method", method)
	}
	body := lookupStr(env, "body", "")
	if v, ok := env.Lookup("body"); ok {
		if b, ok := v.Value.Unbox().AsBlob(); ok {
			body = string(b)
		}
	}

	return Request{
		Method:  method,
		URL:     rawURL,
		Body:    body,
		Headers: headers,
		Bearer:  lookupStr(env, "bearer", ""),
		Timeout: lookupSeconds(env, "timeout"),
	}, nil
}

func resultValue(res Result) value.Value {
	m := value.NewMap()
	if res.Err != nil {
		m = m.Set(value.Str("error"), value.Str(res.Err.Error()))
		m = m.Set(value.Str("ok"), value.Bool(false))
		return value.MapVal(m)
	}
	headers := value.NewMap()
	for k, v := range res.Headers {
		headers = headers.Set(value.Str(k), value.Str(v))
	}
	m = m.Set(value.Str("status"), value.Int(int64(res.Status)))
	m = m.Set(value.Str("ok"), value.Bool(res.OK))
	m = m.Set(value.Str("headers"), value.MapVal(headers))
	m = m.Set(value.Str("content_type"), value.Str(res.ContentType))
	m = m.Set(value.Str("text"), value.Str(res.Text))
	m = m.Set(value.Str("bytes"), value.Blob(res.Bytes))
	return value.MapVal(m)
}

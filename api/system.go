package api

import (
	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/iotcore"
	"github.com/lixenwraith/iotcore/log"
)

// SystemAPI exposes device control, diagnostics, logs, log levels and
// configuration under /api/system.
type SystemAPI struct {
	system *iotcore.System
	logger log.Logger
}

// NewSystemAPI creates the provider for system.
func NewSystemAPI(system *iotcore.System) *SystemAPI {
	return &SystemAPI{
		system: system,
		logger: system.Logger("api"),
	}
}

// SetupAPI implements Provider.
func (a *SystemAPI) SetupAPI(server *Server) {
	server.On(fasthttp.MethodPost, "/api/system/reset", a.reset)
	server.On(fasthttp.MethodPost, "/api/system/factory-reset", a.factoryReset)
	server.On(fasthttp.MethodPost, "/api/system/stop", a.stop)
	server.On(fasthttp.MethodGet, "/api/system/status", a.status)
	server.On(fasthttp.MethodGet, "/api/system/logs", a.logs)
	server.On(fasthttp.MethodGet, "/api/system/log-level", a.getLogLevels)
	server.On(fasthttp.MethodPut, "/api/system/log-level", a.setInitialLevel)
	server.On(fasthttp.MethodPut, "/api/system/log-level/{category}", a.setCategoryLevel)
	server.On(fasthttp.MethodDelete, "/api/system/log-level/{category}", a.clearCategoryLevel)
	server.On(fasthttp.MethodGet, "/api/system/config", a.getAllConfig)
	server.On(fasthttp.MethodPut, "/api/system/config", a.configureAll)
	server.On(fasthttp.MethodGet, "/api/system/config/{component}", a.getConfig)
	server.On(fasthttp.MethodPut, "/api/system/config/{component}", a.configure)
}

// reset and factory reset run on the next iteration, after the response is
// out.
func (a *SystemAPI) reset(_ *Request, resp *Response) {
	a.system.Schedule(a.system.Reset)
	resp.Code(fasthttp.StatusNoContent)
}

func (a *SystemAPI) factoryReset(_ *Request, resp *Response) {
	a.system.Schedule(a.system.FactoryReset)
	resp.Code(fasthttp.StatusNoContent)
}

func (a *SystemAPI) stop(_ *Request, resp *Response) {
	a.system.Stop()
	resp.Code(fasthttp.StatusNoContent)
}

func (a *SystemAPI) status(_ *Request, resp *Response) {
	collector := NewJSONCollector()
	a.system.GetDiagnostics(collector)
	data, err := collector.Finish()
	if err != nil {
		a.logger.Warn("Failed to write diagnostics JSON response: %v", err)
		resp.Code(fasthttp.StatusInternalServerError)
		return
	}
	resp.Code(fasthttp.StatusOK).ContentType(ContentTypeJSON)
	_, _ = resp.Write(data)
}

func (a *SystemAPI) logs(_ *Request, resp *Response) {
	resp.Code(fasthttp.StatusOK).ContentType(ContentTypeText)
	a.system.LocalSink().Output(func(entry []byte) {
		_, _ = resp.Write(entry)
	})
}

// getLogLevels writes the initial level, then one "category=LVL" line per
// category override.
func (a *SystemAPI) getLogLevels(_ *Request, resp *Response) {
	logs := a.system.Logs()
	resp.Code(fasthttp.StatusOK).ContentType(ContentTypeText)
	_, _ = resp.WriteString(logs.InitialLevel().String() + "\n")
	for _, cl := range logs.CategoryLevels() {
		_, _ = resp.WriteString(cl.Category + "=" + cl.Level.String() + "\n")
	}
}

func (a *SystemAPI) setInitialLevel(req *Request, resp *Response) {
	logs := a.system.Logs()
	if err := logs.SetInitialLevel(log.ParseLevel(req.Text())); err != nil {
		resp.Code(fasthttp.StatusBadRequest)
		return
	}
	resp.Code(fasthttp.StatusOK).ContentType(ContentTypeText)
	_, _ = resp.WriteString(logs.InitialLevel().String())
}

func (a *SystemAPI) setCategoryLevel(req *Request, resp *Response) {
	logs := a.system.Logs()
	category := req.Param("category")
	if err := logs.SetCategoryLevel(category, log.ParseLevel(req.Text())); err != nil {
		resp.Code(fasthttp.StatusBadRequest)
		return
	}
	resp.Code(fasthttp.StatusOK).ContentType(ContentTypeText)
	_, _ = resp.WriteString(logs.CategoryLevel(category).String())
}

func (a *SystemAPI) clearCategoryLevel(req *Request, resp *Response) {
	if !a.system.Logs().ClearCategoryLevel(req.Param("category")) {
		resp.Code(fasthttp.StatusNotFound)
		return
	}
	resp.Code(fasthttp.StatusNoContent)
}

func (a *SystemAPI) getAllConfig(_ *Request, resp *Response) {
	buf := iotcore.NewConfigBuffer()
	a.system.GetAllConfig(buf.Write)
	resp.Code(fasthttp.StatusOK).ContentType(ContentTypeText)
	_, _ = resp.Write(buf.Bytes())
}

func (a *SystemAPI) configureAll(req *Request, resp *Response) {
	if !a.system.ConfigureAll(iotcore.ConfigText(req.Body)) {
		resp.Code(fasthttp.StatusBadRequest)
		return
	}
	resp.Code(fasthttp.StatusOK).ContentType(ContentTypeText)
	_, _ = resp.Write(req.Body)
}

func (a *SystemAPI) getConfig(req *Request, resp *Response) {
	buf := iotcore.NewConfigBuffer()
	if !a.system.GetConfig(req.Param("component"), buf.Write) {
		resp.Code(fasthttp.StatusNotFound)
		return
	}
	resp.Code(fasthttp.StatusOK).ContentType(ContentTypeText)
	_, _ = resp.Write(buf.Bytes())
}

func (a *SystemAPI) configure(req *Request, resp *Response) {
	if !a.system.Configure(req.Param("component"), iotcore.ConfigText(req.Body)) {
		resp.Code(fasthttp.StatusBadRequest)
		return
	}
	resp.Code(fasthttp.StatusOK).ContentType(ContentTypeText)
	_, _ = resp.Write(req.Body)
}

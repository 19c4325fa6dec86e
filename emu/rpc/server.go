package rpc

import (
	"errors"
	"net"
	"net/http"
	"net/rpc"
	"strconv"
)

// Emu is the set of controls exposed to clients.
type Emu interface {
	Reset()
	Restart()
	SetPause(pause bool)
	Stop()
	SaveSnapshot()
	LoadSnapshot()
	IsPaused() bool
}

type emuProxy struct {
	emu Emu
}

func (ep *emuProxy) Reset(_, _ *struct{}) error             { ep.emu.Reset(); return nil }
func (ep *emuProxy) Restart(_, _ *struct{}) error           { ep.emu.Restart(); return nil }
func (ep *emuProxy) SetPause(pause bool, _ *struct{}) error { ep.emu.SetPause(pause); return nil }
func (ep *emuProxy) Stop(_, _ *struct{}) error              { ep.emu.Stop(); return nil }
func (ep *emuProxy) SaveSnapshot(_, _ *struct{}) error      { ep.emu.SaveSnapshot(); return nil }
func (ep *emuProxy) LoadSnapshot(_, _ *struct{}) error      { ep.emu.LoadSnapshot(); return nil }

func (ep *emuProxy) IsPaused(_ *struct{}, reply *bool) error {
	*reply = ep.emu.IsPaused()
	return nil
}

type Server struct {
	l    net.Listener
	http *http.Server
}

// NewServer listens on localhost:port, call Serve to handle requests.
func NewServer(port int, emu Emu) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(serviceName, &emuProxy{emu: emu}); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, srv)

	l, err := net.Listen("tcp", "localhost:"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}

	modRPC.InfoZ("rpc server listening").Int("port", port).End()
	return &Server{l: l, http: &http.Server{Handler: mux}}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string { return s.l.Addr().String() }

// Serve handles requests until Close is called.
func (s *Server) Serve() error {
	err := s.http.Serve(s.l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close() error {
	modRPC.DebugZ("closing rpc server").End()
	return s.http.Close()
}

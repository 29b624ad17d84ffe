package signal

import "github.com/dkeye/pagesync/internal/core"

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.send(conn, core.EventPong, nil)
}

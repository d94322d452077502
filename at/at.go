package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = "> "

	// Response Codes
	OK        = "OK"
	ERROR     = "ERROR"
	NoCarrier = "NO CARRIER"
	CmeError  = "+CME ERROR:"
	CmsError  = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcSocketRing   = "+SQNSRING:"
	UrcSocketClosed = "+SQNSH:"
	UrcSysStart     = "+SYSSTART"
	UrcShutdown     = "+SHUTDOWN"

	// Intermediate responses
	RespRegistration = "+CEREG:"
	RespDNSLookup    = "+SQNDNSLKUP:"
	RespSocketRecv   = "+SQNSRECV:"
	RespSimStatus    = "+CPIN:"

	SimReady = "READY"
	SimPin   = "SIM PIN"
)

// Basic commands
const (
	CmdAt            = "AT"
	CmdEchoOff       = "ATE0"
	CmdNumericErrors = "AT+CMEE=1"
	CmdSimStatus     = "AT+CPIN?"
	CmdReset         = "AT^RESET"
	CmdRadioOn       = "AT+CFUN=1"
	CmdRadioOff      = "AT+CFUN=0"
	CmdRegistration  = "AT+CEREG?"
)

// Sequans command formats
const (
	// CmdSetOperator selects the operator profile: name.
	CmdSetOperator = `AT+SQNCTM="%s"`
	// CmdSetBands programs the LTE-M band list: operator, bands.
	CmdSetBands = `AT+SQNBANDSEL=0,"%s","%s"`
	// CmdDefineContext defines PDP context 1: APN.
	CmdDefineContext = `AT+CGDCONT=1,"IP","%s"`
	// CmdSocketConfig binds a connection to context 1: connId.
	CmdSocketConfig = "AT+SQNSCFG=%d,1,300,90,600,50"
	// CmdSocketConfigExt switches a connection to data-amount rings and
	// hex payloads: connId.
	CmdSocketConfigExt = "AT+SQNSCFGEXT=%d,1,1,0,0,1"
	// CmdSocketDial opens a connection in command mode: connId, protocol,
	// port, address.
	CmdSocketDial = `AT+SQNSD=%d,%d,%d,"%s",0,0,1`
	// CmdSocketSend announces a hex payload: connId, byte count.
	CmdSocketSend = "AT+SQNSSENDEXT=%d,%d"
	// CmdSocketRecv reads buffered data: connId, max bytes.
	CmdSocketRecv = "AT+SQNSRECV=%d,%d"
	// CmdSocketClose closes a connection: connId.
	CmdSocketClose = "AT+SQNSH=%d"
	// CmdDNSLookup resolves a host: name, IP type (0 IPv4, 1 IPv6).
	CmdDNSLookup = `AT+SQNDNSLKUP="%s",%d`
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CEREG: ...)
	TypePrompt                     // Payload input prompt
)

package probe

// wellKnownServices maps ports to conventional service names. Loaded once,
// read-only; lookups never fail.
var wellKnownServices = map[int]string{
	20:    "FTP-Data",
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	80:    "HTTP",
	110:   "POP3",
	143:   "IMAP",
	443:   "HTTPS",
	445:   "SMB",
	465:   "SMTPS",
	587:   "SMTP-Submission",
	993:   "IMAPS",
	995:   "POP3S",
	1433:  "MSSQL",
	3306:  "MySQL",
	3389:  "RDP",
	5432:  "PostgreSQL",
	5900:  "VNC",
	6379:  "Redis",
	8080:  "HTTP-Alt",
	8443:  "HTTPS-Alt",
	27017: "MongoDB",
}

// ServiceName returns the well-known name for a port, or "Unknown".
func ServiceName(port int) string {
	if name, ok := wellKnownServices[port]; ok {
		return name
	}
	return "Unknown"
}

package constants

// Имена обменников
const (
	ScannerExchange = "scanner_events"
)

// Ключи маршрутизации
const (
	RoutingKeyMatchFound = "scanner.match.found"
)

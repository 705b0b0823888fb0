// Package boltcodes defines the closed error-code enumeration shared by
// every layer of the driver and the Error type that carries one
// alongside a human-readable context and the low-level cause.
package boltcodes

// Code is a member of the closed error enumeration. New codes are never
// added outside this list; callers switch on Code exhaustively.
type Code int

const (
	Success Code = iota
	UnknownError
	Unsupported
	Interrupted
	ConnectionReset
	NoValidAddress
	TimedOut
	PermissionDenied
	OutOfFiles
	OutOfMemory
	OutOfPorts
	ConnectionRefused
	NetworkUnreachable
	TLSError
	EndOfTransmission
	ServerFailure
	ProtocolViolation
	ProtocolUnsupportedType
	ProtocolUnsupported
	PoolFull
	PoolAcquisitionTimedOut
	AddressNotResolved
	RoutingUnableToRetrieveTable
	RoutingNoServersToSelect
	RoutingUnableToConstructPoolForServer
	RoutingUnexpectedDiscoveryResponse
)

var names = map[Code]string{
	Success:                                "success",
	UnknownError:                           "unknown_error",
	Unsupported:                            "unsupported",
	Interrupted:                            "interrupted",
	ConnectionReset:                        "connection_reset",
	NoValidAddress:                         "no_valid_address",
	TimedOut:                               "timed_out",
	PermissionDenied:                       "permission_denied",
	OutOfFiles:                             "out_of_files",
	OutOfMemory:                            "out_of_memory",
	OutOfPorts:                             "out_of_ports",
	ConnectionRefused:                      "connection_refused",
	NetworkUnreachable:                     "network_unreachable",
	TLSError:                               "tls_error",
	EndOfTransmission:                      "end_of_transmission",
	ServerFailure:                          "server_failure",
	ProtocolViolation:                      "protocol_violation",
	ProtocolUnsupportedType:                "protocol_unsupported_type",
	ProtocolUnsupported:                    "protocol_unsupported",
	PoolFull:                               "pool_full",
	PoolAcquisitionTimedOut:                "pool_acquisition_timed_out",
	AddressNotResolved:                     "address_not_resolved",
	RoutingUnableToRetrieveTable:          "routing_unable_to_retrieve_table",
	RoutingNoServersToSelect:              "routing_no_servers_to_select",
	RoutingUnableToConstructPoolForServer: "routing_unable_to_construct_pool_for_server",
	RoutingUnexpectedDiscoveryResponse:    "routing_unexpected_discovery_response",
}

// String renders the wire-stable snake_case name of the code.
func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return "unknown_error"
}

package stk500

// STK500v1 protocol bytes, per AVR061. The same wire protocol is spoken
// by the STK500 firmware 1.x and by Arduino serial bootloaders.
const (
	cmdGetSync       = 0x30
	cmdGetParameter  = 0x41
	cmdSetDevice     = 0x42
	cmdEnterProgmode = 0x50
	cmdLeaveProgmode = 0x51
	cmdChipErase     = 0x52
	cmdLoadAddress   = 0x55
	cmdUniversal     = 0x56
	cmdProgPage      = 0x64
	cmdReadPage      = 0x74
	cmdReadSign      = 0x75

	syncCRCEOP = 0x20

	respInsync   = 0x14
	respOK       = 0x10
	respFailed   = 0x11
	respNodevice = 0x13
	respNosync   = 0x15

	parmSWMajor = 0x81
	parmSWMinor = 0x82
)

// Page transfer memtype selectors.
const (
	memtypeFlash  = 'F'
	memtypeEEPROM = 'E'
)

// maxSyncAttempts bounds the resync-and-retry loop after a NOSYNC
// response.
const maxSyncAttempts = 33

// defaultPageSize is used when a paged transfer is requested for a
// memory that declares no page size.
const defaultPageSize = 128

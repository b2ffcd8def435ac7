package core

// FirmwareControlByte tells the boot ROM that the image carries patches
const FirmwareControlByte = 0x7F

// EarlyROM is the NFC stack configuration block the ROM reads before
// running any patch.
var EarlyROM = [32]byte{
	0x3d, 0xc7, 0x88, 0x13, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x62, 0xc2, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Firmware ties the command handlers to their peripherals
type Firmware struct {
	cfg    Config
	table  *PatchTable
	out    *OutputPin
	bus    *I2CEngine
	sensor *RegisterSensor
}

var firmware *Firmware

// Init validates cfg, builds and seals the patch table and repairs the image
// CRC. The HAL drivers must be registered first.
func Init(cfg Config) (*Firmware, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clk := MustClock()
	f := &Firmware{cfg: cfg}
	f.out = NewOutputPin(MustGPIO(), clk, cfg.OutputPin, cfg.BlinkCycles)
	f.bus = NewI2CEngine(MustI2C(), f.out, clk, cfg)
	f.sensor = NewRegisterSensor(f.bus, cfg.SensorAddress)

	table, err := NewFirmwareTable(f)
	if err != nil {
		return nil, err
	}
	f.table = table
	globalTable = table

	RepairCRC(cfg.CRCRegions...)

	firmware = f
	DebugPrintln("[CORE] patch table sealed, " + itoa(table.Count()) + " commands, variant " + cfg.Variant.String())
	return f, nil
}

// Step is one main loop pass: repair the CRC when the variant asks for it,
// then sleep until an interrupt.
func (f *Firmware) Step() {
	if f.cfg.Variant.RepairsEachLoop() {
		RepairCRC(f.cfg.CRCRegions...)
	}
	MustClock().WaitForInterrupt()
}

// Run never returns
func (f *Firmware) Run() {
	for {
		f.Step()
	}
}

// Dispatch invokes the handler patched for code
func (f *Firmware) Dispatch(code uint8) (uint16, bool) {
	return f.table.Dispatch(code)
}

// Table returns the sealed patch table
func (f *Firmware) Table() *PatchTable {
	return f.table
}

// Bus returns the I2C engine
func (f *Firmware) Bus() *I2CEngine {
	return f.bus
}

// Output returns the indicator / trigger pin
func (f *Firmware) Output() *OutputPin {
	return f.out
}

// Config returns the configuration the firmware was built with
func (f *Firmware) Config() Config {
	return f.cfg
}

// HandleBusInterrupt forwards a bus controller interrupt to the running
// firmware. Interrupts before Init are ignored.
func HandleBusInterrupt(ev I2CEvent) {
	if firmware == nil {
		return
	}
	firmware.bus.HandleInterrupt(ev)
}

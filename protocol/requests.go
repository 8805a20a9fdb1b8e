package protocol

// Request types, one block per service.
const (
	ClockSubscribe   = RequestType(ServiceClock)<<serviceIDShift | 0x01
	ClockUnsubscribe = RequestType(ServiceClock)<<serviceIDShift | 0x02
	ClockLFClkSrc    = RequestType(ServiceClock)<<serviceIDShift | 0x03
	ClockHSFLLMode   = RequestType(ServiceClock)<<serviceIDShift | 0x04

	DiagReg = RequestType(ServiceDiag)<<serviceIDShift | 0x01

	DVFSInitPrepare  = RequestType(ServiceDVFS)<<serviceIDShift | 0x01
	DVFSInitComplete = RequestType(ServiceDVFS)<<serviceIDShift | 0x02
	DVFSOppoint      = RequestType(ServiceDVFS)<<serviceIDShift | 0x03
	DVFSReadyToScale = RequestType(ServiceDVFS)<<serviceIDShift | 0x04

	GDPWRSetPowerRequest = RequestType(ServiceGDPWR)<<serviceIDShift | 0x01

	MRAMSetLatency = RequestType(ServiceMRAM)<<serviceIDShift | 0x01

	PMICRFFEOn        = RequestType(ServicePMIC)<<serviceIDShift | 0x01
	PMICRFFEOff       = RequestType(ServicePMIC)<<serviceIDShift | 0x02
	PMICSIMOn         = RequestType(ServicePMIC)<<serviceIDShift | 0x03
	PMICSIMOff        = RequestType(ServicePMIC)<<serviceIDShift | 0x04
	PMICBLERadioOn    = RequestType(ServicePMIC)<<serviceIDShift | 0x05
	PMICBLERadioOff   = RequestType(ServicePMIC)<<serviceIDShift | 0x06
	PMICPWMDefault    = RequestType(ServicePMIC)<<serviceIDShift | 0x07
	PMICPWMGhostAvoid = RequestType(ServicePMIC)<<serviceIDShift | 0x08
	PMICTestIF        = RequestType(ServicePMIC)<<serviceIDShift | 0x09
	PMICInfo          = RequestType(ServicePMIC)<<serviceIDShift | 0x0A

	ResetRequest = RequestType(ServiceReset)<<serviceIDShift | 0x01

	TempMeasure     = RequestType(ServiceTemp)<<serviceIDShift | 0x01
	TempSubscribe   = RequestType(ServiceTemp)<<serviceIDShift | 0x02
	TempUnsubscribe = RequestType(ServiceTemp)<<serviceIDShift | 0x03

	USBEnable             = RequestType(ServiceUSB)<<serviceIDShift | 0x01
	USBDisable            = RequestType(ServiceUSB)<<serviceIDShift | 0x02
	USBDPlusPullupEnable  = RequestType(ServiceUSB)<<serviceIDShift | 0x03
	USBDPlusPullupDisable = RequestType(ServiceUSB)<<serviceIDShift | 0x04

	GDFSFreq = RequestType(ServiceGDFS)<<serviceIDShift | 0x01

	SWEXTPowerUp   = RequestType(ServiceSWEXT)<<serviceIDShift | 0x01
	SWEXTPowerDown = RequestType(ServiceSWEXT)<<serviceIDShift | 0x02

	AudioPLLEnable    = RequestType(ServiceAudioPLL)<<serviceIDShift | 0x01
	AudioPLLDisable   = RequestType(ServiceAudioPLL)<<serviceIDShift | 0x02
	AudioPLLFreq      = RequestType(ServiceAudioPLL)<<serviceIDShift | 0x03
	AudioPLLPrescaler = RequestType(ServiceAudioPLL)<<serviceIDShift | 0x04
	AudioPLLFreqInc   = RequestType(ServiceAudioPLL)<<serviceIDShift | 0x05
)

// RequestNames maps request types to human-readable names for logging.
var RequestNames = map[RequestType]string{
	ClockSubscribe:   "CLOCK_SUBSCRIBE",
	ClockUnsubscribe: "CLOCK_UNSUBSCRIBE",
	ClockLFClkSrc:    "CLOCK_LFCLK_SRC",
	ClockHSFLLMode:   "CLOCK_HSFLL_MODE",

	DiagReg: "DIAG_REG",

	DVFSInitPrepare:  "DVFS_INIT_PREPARE",
	DVFSInitComplete: "DVFS_INIT_COMPLETE",
	DVFSOppoint:      "DVFS_OPPOINT",
	DVFSReadyToScale: "DVFS_READY_TO_SCALE",

	GDPWRSetPowerRequest: "GDPWR_SET_POWER_REQUEST",

	MRAMSetLatency: "MRAM_SET_LATENCY",

	PMICRFFEOn:        "PMIC_RFFE_ON",
	PMICRFFEOff:       "PMIC_RFFE_OFF",
	PMICSIMOn:         "PMIC_SIM_ON",
	PMICSIMOff:        "PMIC_SIM_OFF",
	PMICBLERadioOn:    "PMIC_BLE_RADIO_ON",
	PMICBLERadioOff:   "PMIC_BLE_RADIO_OFF",
	PMICPWMDefault:    "PMIC_PWM_DEFAULT",
	PMICPWMGhostAvoid: "PMIC_PWM_GHOST_AVOID",
	PMICTestIF:        "PMIC_TEST_IF",
	PMICInfo:          "PMIC_INFO",

	ResetRequest: "RESET",

	TempMeasure:     "TEMP_MEASURE",
	TempSubscribe:   "TEMP_SUBSCRIBE",
	TempUnsubscribe: "TEMP_UNSUBSCRIBE",

	USBEnable:             "USB_ENABLE",
	USBDisable:            "USB_DISABLE",
	USBDPlusPullupEnable:  "USB_DPLUS_PULLUP_ENABLE",
	USBDPlusPullupDisable: "USB_DPLUS_PULLUP_DISABLE",

	GDFSFreq: "GDFS_FREQ",

	SWEXTPowerUp:   "SWEXT_POWER_UP",
	SWEXTPowerDown: "SWEXT_POWER_DOWN",

	AudioPLLEnable:    "AUDIOPLL_ENABLE",
	AudioPLLDisable:   "AUDIOPLL_DISABLE",
	AudioPLLFreq:      "AUDIOPLL_FREQ",
	AudioPLLPrescaler: "AUDIOPLL_PRESCALER",
	AudioPLLFreqInc:   "AUDIOPLL_FREQ_INC",
}

package logline

import "regexp"

const floatPattern = `([0-9]+(?:\.[0-9]+)?(?:[eE][-+]?[0-9]+)?)`

var (
	// [123.456] or [123.456][pid]
	reTimestamp = regexp.MustCompile(`^\[([0-9]+\.[0-9]+)\]`)
	rePID       = regexp.MustCompile(`^\[[0-9]+\.[0-9]+\]\[([0-9]+)\]`)

	// [time][pid][CSockSender 57] ...
	reSocketTag = regexp.MustCompile(`\[CSock(?:Sender|Receiver) ([0-9]+)\]`)

	// Got update from scout: 192.168.1.2 is up, bandwidth_down 43226 ... type wifi
	reScout = regexp.MustCompile(`scout: (\S+?),? is (down|up)\b.* type ([A-Za-z0-9]+)`)

	// Successfully bound osfd 57 to 192.168.1.2:0
	reBound     = regexp.MustCompile(`Successfully bound(?: osfd ([0-9]+))? to (\S+)`)
	reIPAddress = regexp.MustCompile(`([0-9]+(?:\.[0-9]+){3})`)

	// Adding connection 14 from 192.168.1.2 bw_down 43226 ... type wifi(peername ...)
	reIncoming = regexp.MustCompile(`Adding connection ([0-9]+) from ([0-9]+(?:\.[0-9]+){3}).+type ([A-Za-z0-9]+)`)

	// CSocket 57 is being destroyed
	reDestroyed = regexp.MustCompile(`CSocket ([0-9]+) is being destroyed`)

	// Getting bytes to send from IROB 6
	reChunkPrepared = regexp.MustCompile(`Getting bytes to send from IROB ([0-9]+)`)

	// ...returning 1216 bytes, seqno 0
	reChunkSent = regexp.MustCompile(`\.\.\.returning ([0-9]+) bytes`)

	// About to send message:  Type: Begin_IROB(1) Send labels: FG,SMALL IROB: 0 numdeps: 0
	// Received message:  Type: End_IROB(2) ... IROB: 0 expected_bytes: 1024 expected_chunks: 1
	reMessageType   = regexp.MustCompile(`(About to send|Received) message:\s+Type: ([A-Za-z_]+)`)
	reIROB          = regexp.MustCompile(`IROB: ([0-9]+)`)
	reDatalen       = regexp.MustCompile(`datalen: ([0-9]+)`)
	reExpectedBytes = regexp.MustCompile(`expected_bytes: ([0-9]+)`)

	// Adding new stats to wifi network estimator: bandwidth: obs 1200 est 1100 latency: obs 0.05 est 0.04
	reEstimator = regexp.MustCompile(`Adding new stats to (.+?) network estimator`)
	reBandwidth = regexp.MustCompile(`bandwidth: obs ` + floatPattern + ` est ` + floatPattern)
	reLatency   = regexp.MustCompile(`latency: obs ` + floatPattern + ` est ` + floatPattern)

	//  chooseNetwork took 0.000123 seconds
	reChooseTook = regexp.MustCompile(`  took ([0-9.]+) seconds`)

	// Sending hello: ... redundancy_strategy_type: intnw_redundant
	reStrategy = regexp.MustCompile(`redundancy_strategy_type: ([a-z_]+)`)
)

package cache

// ConfFileName is the LHAPDF global configuration file in the write directory.
const ConfFileName = "lhapdf.conf"

// DefaultConf is written to <write_dir>/lhapdf.conf when the file is absent.
const DefaultConf = `# LHAPDF global configuration file
Verbosity: 1
Interpolator: logcubic
Extrapolator: continuation
ForcePositive: 0
AlphaS_Type: analytic
MZ: 91.1876
MUp: 0.002
MDown: 0.005
MStrange: 0.10
MCharm: 1.29
MBottom: 4.19
MTop: 172.9
Pythia6LambdaV5Compat: true
`

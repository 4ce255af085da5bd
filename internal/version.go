package internal

// Version is the cliprecall release version
const Version = "0.4.1"

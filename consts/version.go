package consts

// Version is overridden at build time with -ldflags "-X github.com/msbooks/bookshelf/consts.Version=..."
var Version = "dev"

// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/relayvault/pkg/cmd"
)

//	@title			RelayVault API
//	@version		1.0
//	@description	RelayVault 把批量上传的文件中继到上游频道作为存储，并提供元数据查询与文件读取。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
